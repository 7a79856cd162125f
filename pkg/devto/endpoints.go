package devto

const (
	// DefaultBaseURL is the public DEV API
	DefaultBaseURL = "https://dev.to/api"

	// AcceptHeader pins the API version
	AcceptHeader = "application/vnd.forem.api-v1+json"

	// ArticlesEndpoint lists the authenticated account's articles, drafts included
	ArticlesEndpoint = "/articles/me/all"

	// FollowersEndpoint lists the authenticated account's followers
	FollowersEndpoint = "/followers/users"

	// UserByUsernameEndpoint returns the public profile of a user
	UserByUsernameEndpoint = "/users/by_username"

	// MaxPageSize is the largest per_page the listing endpoints accept
	MaxPageSize = 1000
)

// PageRequest describes a paginated listing
type PageRequest struct {
	Endpoint string
	// Query holds fixed parameters; page and per_page are set per request
	Query map[string]string
	// PageSize is the requested per_page; 0 uses the client default
	PageSize int
}

// ArticlesRequest is the listing behind the article loader
func ArticlesRequest(pageSize int) PageRequest {
	return PageRequest{Endpoint: ArticlesEndpoint, PageSize: pageSize}
}

// FollowersRequest is the listing behind the follower loader
func FollowersRequest(pageSize int) PageRequest {
	return PageRequest{Endpoint: FollowersEndpoint, PageSize: pageSize}
}

func clampPageSize(size int) int {
	if size <= 0 || size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
