package gateway

// Request is one invocation of the automation endpoint. The two variants
// select the wire encoding and the time budget.
type Request interface {
	kind() string
	chat() string
}

// TextRequest is sent as a JSON body.
type TextRequest struct {
	Message     string
	UserID      string
	ChatID      string
	DisplayName string
}

func (TextRequest) kind() string   { return kindText }
func (r TextRequest) chat() string { return r.ChatID }

// ImageRequest is sent as multipart/form-data with the image bytes attached.
type ImageRequest struct {
	Message          string
	UserID           string
	ChatID           string
	DisplayName      string
	Image            []byte
	ImageContentType string
}

func (ImageRequest) kind() string   { return kindImage }
func (r ImageRequest) chat() string { return r.ChatID }

const (
	kindText  = "text"
	kindImage = "image"
)

// textPayload is the JSON wire shape of a TextRequest.
type textPayload struct {
	Message       string `json:"message"`
	UserID        string `json:"userId"`
	ChatID        string `json:"chatId"`
	ClienteNombre string `json:"clienteNombre"`
}
