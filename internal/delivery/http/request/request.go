package request

type ConvertByURLRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"` // bypass and refresh the conversion cache
}
