package cnst

const (
	// XLang is the header and context key carrying the client language preference
	XLang = "X-Lang"

	LangEN = "en"
	LangFR = "fr"

	// LangDefault is used when the client does not state a preference
	LangDefault = LangFR
)
