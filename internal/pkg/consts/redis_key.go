package consts

const (
	AutopilotRunLock     = "autopilot:lock:"      // + stage:campaignID
	PlatformRateLimitKey = "autopilot:ratelimit:" // + platform:window
	SeenPostKey          = "autopilot:seen:"      // + campaignID:platform
	OAuthStateKey        = "oauth:state:"         // + state
)
