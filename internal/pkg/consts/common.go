package consts

const (
	StageFetch = "fetch"
	StagePost  = "post"
)

const (
	ResultTypeSuccess = "success"
	ResultTypeError   = "error"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
