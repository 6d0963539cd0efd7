package authorization

import (
	"context"
	"errors"
)

// Service answers "may this actor perform this action on this object in
// this workspace". Actors are either "system" (scheduler, internal jobs)
// or "user:<id>" with a workspace role carried by the bearer token.
type Service interface {
	Authorize(ctx context.Context, actor string, role string, orgID string, object string, action string) error
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)

const (
	RoleOwner    = "owner"
	RoleEngineer = "engineer"
	RoleClient   = "client"
)

const (
	ObjectClient    = "client"
	ObjectProject   = "project"
	ObjectQuote     = "quote"
	ObjectContract  = "contract"
	ObjectTimeEntry = "time_entry"
	ObjectFinance   = "finance"
	ObjectMessage   = "message"
	ObjectDocument  = "document"
	ObjectExport    = "export"
)

const (
	ActionClientView    = "client.view"
	ActionClientCreate  = "client.create"
	ActionClientUpdate  = "client.update"
	ActionClientArchive = "client.archive"

	ActionProjectView   = "project.view"
	ActionProjectCreate = "project.create"
	ActionProjectUpdate = "project.update"

	ActionQuoteView    = "quote.view"
	ActionQuoteCreate  = "quote.create"
	ActionQuoteUpdate  = "quote.update"
	ActionQuoteSend    = "quote.send"
	ActionQuoteAccept  = "quote.accept"
	ActionQuoteReject  = "quote.reject"
	ActionQuoteVersion = "quote.version"
	ActionQuoteExpire  = "quote.expire"

	ActionContractView   = "contract.view"
	ActionContractCreate = "contract.create"
	ActionContractUpdate = "contract.update"
	ActionContractSend   = "contract.send"
	ActionContractSign   = "contract.sign"
	ActionContractCancel = "contract.cancel"

	ActionTimeEntryView   = "time_entry.view"
	ActionTimeEntryCreate = "time_entry.create"
	ActionTimeEntryUpdate = "time_entry.update"
	ActionTimeEntryDelete = "time_entry.delete"

	ActionFinanceView     = "finance.view"
	ActionFinanceSnapshot = "finance.snapshot"

	ActionMessageView = "message.view"
	ActionMessagePost = "message.post"
	ActionMessageRead = "message.read"

	ActionDocumentView     = "document.view"
	ActionDocumentUpload   = "document.upload"
	ActionDocumentDownload = "document.download"
	ActionDocumentDelete   = "document.delete"

	ActionExportQuotePDF        = "export.quote_pdf"
	ActionExportFinanceWorkbook = "export.finance_workbook"
)
