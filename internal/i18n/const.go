package i18n

// Common errors
var (
	ErrNotFound       = NewErrorWithCode("ErrorResourceNotFound", ErrorNotFound)
	ErrUnauthorized   = NewErrorWithCode("ErrorUnauthorized", ErrorUnauthorized)
	ErrForbidden      = NewErrorWithCode("ErrorForbidden", ErrorForbidden)
	ErrBadRequest     = NewErrorWithCode("ErrorBadRequest", ErrorBadRequest)
	ErrInternalServer = NewErrorWithCode("ErrorInternalServer", ErrorInternalServer)
)

// User and hierarchy related errors
var (
	ErrorUserNotFound             = NewErrorWithCode("ErrorUserNotFound", ErrorNotFound)
	ErrorInvalidCredentials       = NewErrorWithCode("ErrorInvalidCredentials", ErrorUnauthorized)
	ErrorUserNamePasswordRequired = NewErrorWithCode("ErrorUserNamePasswordRequired", ErrorBadRequest)
	ErrorUsernameExists           = NewErrorWithCode("ErrorUsernameExists", ErrorConflict)
	ErrorFieldCodeExists          = NewErrorWithCode("ErrorFieldCodeExists", ErrorConflict)
	ErrorDirectorOnly             = NewErrorWithCode("ErrorDirectorOnly", ErrorForbidden)
	ErrorNotDirectReport          = NewErrorWithCode("ErrorNotDirectReport", ErrorForbidden)
	ErrorInvalidRole              = NewErrorWithCode("ErrorInvalidRole", ErrorBadRequest)
	ErrorChefNotFound             = NewErrorWithCode("ErrorChefNotFound", ErrorBadRequest)
	ErrorInvalidHierarchy         = NewErrorWithCode("ErrorInvalidHierarchy", ErrorBadRequest)
	ErrorHierarchyNotEmpty        = NewErrorWithCode("ErrorHierarchyNotEmpty", ErrorBadRequest)
	ErrorHierarchyCorruption      = NewErrorWithCode("ErrorHierarchyCorruption", ErrorInternalServer)
)

// Zone and assignment related errors
var (
	ErrorZoneNotFound           = NewErrorWithCode("ErrorZoneNotFound", ErrorNotFound)
	ErrorAssignmentNotFound     = NewErrorWithCode("ErrorAssignmentNotFound", ErrorNotFound)
	ErrorControllerRoleRequired = NewErrorWithCode("ErrorControllerRoleRequired", ErrorBadRequest)
	ErrorInvalidQuotaConfig     = NewErrorWithCode("ErrorInvalidQuotaConfig", ErrorBadRequest)
	ErrorQuotaVariableUnknown   = NewErrorWithCode("ErrorQuotaVariableUnknown", ErrorBadRequest)
)

// Dictionary related errors
var (
	ErrorVariableNotFound = NewErrorWithCode("ErrorVariableNotFound", ErrorNotFound)
	ErrorVariableExists   = NewErrorWithCode("ErrorVariableExists", ErrorConflict)
)

// Survey ingestion related errors
var (
	ErrorInvalidSyncToken       = NewErrorWithCode("ErrorInvalidSyncToken", ErrorUnauthorized)
	ErrorInvalidQuestionnaireID = NewErrorWithCode("ErrorInvalidQuestionnaireID", ErrorBadRequest)
)
