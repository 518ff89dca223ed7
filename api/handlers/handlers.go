package handlers

import (
	"github.com/feichai0017/document-client/internal/service/document"
	"github.com/feichai0017/document-client/internal/service/identity"
	"github.com/feichai0017/document-client/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	User     *UserHandler
}

func NewHandlers(
	documentService document.DocumentStore,
	users identity.UserProvider,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, logger),
		User:     NewUserHandler(users, logger),
	}
}
