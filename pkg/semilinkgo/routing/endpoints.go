package routing

type Table string

const (
	ProfilesTable Table = "profiles"
	PostsTable    Table = "posts"
)

const (
	AuthPath      = "/auth/v1"
	AuthorizePath = AuthPath + "/authorize"
)

// ProfileColumns is the select list for a profile row.
const ProfileColumns = "*"

const ProfileIDColumn = "id"
