package handler

type PushParams struct {
	Branch        string `json:"branch"`
	CommitHash    string `json:"commit_hash"`
	CommitMessage string `json:"commit_message"`
}

type RunParams struct {
	RunID int64 `param:"run_id"`
}

type ListRunsParams struct {
	Page int64 `query:"page"`
}

type ConfigVersionParams struct {
	ID     int64  `param:"id" json:"id"`
	Config string `json:"config"`
	Tag    string `json:"tag"`
}

type ListConfigVersionsParams struct {
	Page int64 `query:"page"`
}
