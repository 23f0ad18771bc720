package authcontext

// Key names one slot of per-session auth context. The vocabulary is fixed;
// the store refuses anything else so it never becomes a general payload cache.
type Key string

const (
	KeyRedirectURL   Key = "auth_redirect_url"
	KeyCompetitionID Key = "auth_competition_id"
	KeyFlow          Key = "auth_flow"
	KeyOAuthState    Key = "oauth_state"
	KeyContextBackup Key = "auth_context_backup"
	KeySessionExpiry Key = "auth_session_expiry"
	KeyResetSession  Key = "auth_reset_session"
)

// AllKeys lists the vocabulary in a stable order.
var AllKeys = []Key{
	KeyRedirectURL,
	KeyCompetitionID,
	KeyFlow,
	KeyOAuthState,
	KeyContextBackup,
	KeySessionExpiry,
	KeyResetSession,
}

func (k Key) IsValid() bool {
	for _, known := range AllKeys {
		if k == known {
			return true
		}
	}
	return false
}

func (k Key) String() string {
	return string(k)
}
