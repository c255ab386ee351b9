package mastodon

// ProfileRef identifies an account by instance host and username, as
// parsed from a profile URL like https://mastodon.online/@rozie.
type ProfileRef struct {
	Instance string
	Username string
}

// Account represents a Mastodon account entity as returned by the API.
// The backup only consumes URL; the other fields ride along as the wire
// object carries them.
// https://docs.joinmastodon.org/entities/Account/
type Account struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Acct           string `json:"acct"`
	DisplayName    string `json:"display_name"`
	URL            string `json:"url"`
	URI            string `json:"uri"`
	Locked         bool   `json:"locked"`
	Bot            bool   `json:"bot"`
	CreatedAt      string `json:"created_at"`
	Note           string `json:"note"`
	Avatar         string `json:"avatar"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	StatusesCount  int64  `json:"statuses_count"`
}
