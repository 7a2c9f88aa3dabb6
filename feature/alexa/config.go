package alexa

// Config holds connection and filtering settings for the Alexa API.
// Credentials are captured from an authenticated browser session; this tool
// never performs a login flow itself.
type Config struct {
	// Host is the Alexa web host (e.g. "alexa.amazon.de").
	Host string `mapstructure:"host" default:"localhost"`
	// Cookie is the captured session cookie.
	Cookie string `mapstructure:"cookie" default:""`
	// CSRF is the captured csrf token matching the cookie.
	CSRF string `mapstructure:"csrf" default:""`
	// AppToken is the x-amzn-alexa-app header value.
	AppToken string `mapstructure:"app_token" default:""`
	// UserAgent is sent on every request.
	UserAgent string `mapstructure:"user_agent" default:"Mozilla/5.0"`
	// DeleteSkill is the skill prefix embedded in appliance DELETE URLs.
	DeleteSkill string `mapstructure:"delete_skill" default:""`
	// DescriptionFilter selects the entities this tool manages: only
	// entities whose description contains it are deleted or grouped.
	DescriptionFilter string `mapstructure:"description_filter" default:"via Home Assistant"`
	// DoNotDelete turns every delete into a benign skip. A safety latch for
	// exploring a production account.
	DoNotDelete bool `mapstructure:"do_not_delete" default:"false"`
}
