package errors

import "google.golang.org/grpc/codes"

// QA service errors (service code 20).
var (
	// Request errors (category 01)
	ErrQAInvalidQuery = Register(New(MakeCode(ServiceQA, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid query", "查询无效"))

	// ErrQAUnavailable is returned for every pipeline stage failure. The
	// failing stage is logged server side and never exposed to the client.
	ErrQAUnavailable = Register(New(MakeCode(ServiceQA, CategoryInternal, 1), 500, codes.Internal, "The clinical assistant is temporarily unavailable, please try again later", "临床助手暂时不可用，请稍后重试"))

	ErrQAQueryTimeout = Register(New(MakeCode(ServiceQA, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Query timeout", "查询超时"))

	ErrQAStatsUnavailable = Register(New(MakeCode(ServiceQA, CategoryInternal, 2), 500, codes.Internal, "Statistics unavailable", "统计信息不可用"))
)
