package email

const (
	subjectTicketConfirmedFmt = "[%s] New support ticket %s: %s"
	subjectTicketResolvedFmt  = "Your support ticket %s has been resolved"
)
