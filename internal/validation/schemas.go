package validation

// Schema names
const (
	SchemaBranding          = "branding"
	SchemaLeaderboard       = "leaderboard"
	SchemaStaffInvite       = "staff_invite"
	SchemaAcceptInvitation  = "accept_invitation"
	SchemaConfirmRedemption = "confirm_redemption"
)

const colorPattern = `^#[0-9a-fA-F]{6}$`

var builtin = map[string]string{
	SchemaBranding: `{
		"type": "object",
		"required": ["gym_id", "app_name", "primary_color"],
		"additionalProperties": false,
		"properties": {
			"gym_id": {"type": "string", "format": "uuid"},
			"app_name": {"type": "string", "minLength": 1, "maxLength": 80},
			"primary_color": {"type": "string", "pattern": "` + colorPattern + `"},
			"secondary_color": {"type": "string", "pattern": "` + colorPattern + `"},
			"logo_url": {"type": "string", "format": "uri", "maxLength": 2048}
		}
	}`,
	SchemaLeaderboard: `{
		"type": "object",
		"required": ["gym_id", "rewards"],
		"additionalProperties": false,
		"properties": {
			"gym_id": {"type": "string", "format": "uuid"},
			"rewards": {
				"type": "array",
				"maxItems": 50,
				"items": {
					"type": "object",
					"required": ["rank", "reward_id", "label"],
					"additionalProperties": false,
					"properties": {
						"rank": {"type": "integer", "minimum": 1, "maximum": 1000},
						"reward_id": {"type": "string", "format": "uuid"},
						"label": {"type": "string", "minLength": 1, "maxLength": 60}
					}
				}
			}
		}
	}`,
	SchemaStaffInvite: `{
		"type": "object",
		"required": ["gym_id", "email", "role"],
		"additionalProperties": false,
		"properties": {
			"gym_id": {"type": "string", "format": "uuid"},
			"email": {"type": "string", "format": "email", "maxLength": 254},
			"role": {"type": "string", "enum": ["gym_admin", "receptionist"]}
		}
	}`,
	SchemaAcceptInvitation: `{
		"type": "object",
		"required": ["invitation_id", "token"],
		"additionalProperties": false,
		"properties": {
			"invitation_id": {"type": "string", "format": "uuid"},
			"token": {"type": "string", "minLength": 16, "maxLength": 128}
		}
	}`,
	SchemaConfirmRedemption: `{
		"type": "object",
		"required": ["gym_id", "redemption_id"],
		"additionalProperties": false,
		"properties": {
			"gym_id": {"type": "string", "format": "uuid"},
			"redemption_id": {"type": "string", "format": "uuid"}
		}
	}`,
}
