package gateway

// Reply is the normalized answer of the automation endpoint: either a
// PlainReply or a TicketReply.
type Reply interface {
	ReplyText() string
	isReply()
}

// PlainReply carries only the assistant's text.
type PlainReply struct {
	Text string
}

func (r PlainReply) ReplyText() string { return r.Text }
func (PlainReply) isReply()            {}

// TicketReply is an answer for which the pipeline proposes a support ticket.
// Fields the endpoint omitted are empty.
type TicketReply struct {
	Text       string
	TicketID   string
	ClientName string
	ImageURL   string
}

func (r TicketReply) ReplyText() string { return r.Text }
func (TicketReply) isReply()            {}
