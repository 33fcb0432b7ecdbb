package auth

// Message is the user-facing wording of one Slot
type Message struct {
	Title       string
	Description string
}

// Catalog maps slots to wording. Slots missing from a custom catalog fall back to English.
type Catalog map[Slot]Message

var defaultMessages = Catalog{
	SlotLegacyMethodNotAllowed:      {"Method not allowed", "The authentication method is not allowed by this server."},
	SlotLegacyNotFound:              {"Account not found", "The user account does not exist on the authentication server."},
	SlotLegacyUserMigrated:          {"Account migrated", "This account has been migrated. Sign in with your Microsoft account instead."},
	SlotLegacyInvalidCredentials:    {"Invalid credentials", "The email or password you entered is incorrect."},
	SlotLegacyRateLimit:             {"Too many attempts", "The maximum number of login attempts was reached. Try again later."},
	SlotLegacyInvalidToken:          {"Invalid access token", "The access token is no longer valid. Please sign in again."},
	SlotLegacyAccessTokenHasProfile: {"Profile already assigned", "The access token is already bound to a game profile."},
	SlotLegacyCredentialsMissing:    {"Missing credentials", "No credentials were supplied for authentication."},
	SlotLegacyInvalidSaltVersion:    {"Invalid salt version", "The session salt version is not compatible."},
	SlotLegacyUnsupportedMediaType:  {"Unsupported media type", "The request content type is not supported by the server."},
	SlotLegacyGone:                  {"Account removed", "The user account has been removed from the authentication server."},
	SlotLegacyUnreachable:           {"Server unreachable", "The authentication server is temporarily unavailable."},
	SlotLegacyNotPaid:               {"Game not purchased", "This account does not own the game and cannot be used to play."},
	SlotLegacyUnknown:               {"Unknown error", "An unknown error occurred while signing in. Please try again later."},

	SlotFederatedNoProfile:     {"No profile found", "Sign in to the game website with your Microsoft account, create a profile and try again."},
	SlotFederatedNoXboxAccount: {"No Xbox account", "The Microsoft account you are signing in with has no Xbox account linked to it."},
	SlotFederatedXblBanned:     {"Xbox Live account banned", "The Microsoft account you are signing in with has been banned from Xbox Live."},
	SlotFederatedUnder18:       {"Account is under 18", "The Microsoft account is a child account and must be added to a family by an adult."},
	SlotFederatedUnknown:       {"Unknown error", "An unknown error occurred while signing in with Microsoft. Please try again later."},
}

// DefaultCatalog returns a copy of the built-in English catalog
func DefaultCatalog() Catalog {
	c := make(Catalog, len(defaultMessages))
	for k, v := range defaultMessages {
		c[k] = v
	}
	return c
}
