package routing

type PayloadDataInterface interface {
	Encode() ([]byte, error)
}

type TableInfo struct {
	Returning string
}

var TableStoreDefinition = map[Table]TableInfo{
	ProfilesTable: {
		Returning: "minimal",
	},
	PostsTable: {
		Returning: "minimal",
	},
}
