package errors

import "google.golang.org/grpc/codes"

// SOP center errors (service code 21).
var (
	// Account errors (categories 01, 02)
	ErrEmailTaken         = Register(New(MakeCode(ServiceSOP, CategoryRequest, 1), 400, codes.InvalidArgument, "Email already in use", "邮箱已被使用"))
	ErrInvalidCredentials = Register(New(MakeCode(ServiceSOP, CategoryAuth, 1), 401, codes.Unauthenticated, "Invalid credentials", "凭证无效"))

	// Document errors (categories 04, 07)
	ErrSOPNotFound       = Register(New(MakeCode(ServiceSOP, CategoryResource, 1), 404, codes.NotFound, "SOP document not found", "SOP 文档不存在"))
	ErrEmbeddingNotFound = Register(New(MakeCode(ServiceSOP, CategoryResource, 2), 404, codes.NotFound, "Embedding not found", "向量不存在"))
	ErrSOPEmbedFailed    = Register(New(MakeCode(ServiceSOP, CategoryInternal, 1), 500, codes.Internal, "SOP embedding failed", "SOP 向量化失败"))

	// Reindex errors (category 05)
	ErrReindexInProgress = Register(New(MakeCode(ServiceSOP, CategoryConflict, 1), 409, codes.Aborted, "Reindex already in progress", "重建索引正在进行中"))
)
