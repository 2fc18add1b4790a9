package newslist

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single, fully assembled chat turn.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Defaults used when an optional field cannot be recovered from a block.
const (
	DefaultSource      = "source unknown"
	DefaultPublishDate = "date unknown"
)

// ArticleRecord is one news item recovered from a list message.
type ArticleRecord struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishDate string `json:"publish_date"`
	Summary     string `json:"summary"`
}

// ExtractionResult holds the intro paragraph and the accepted articles of a message,
// in source order.
type ExtractionResult struct {
	Intro    string          `json:"intro"`
	Articles []ArticleRecord `json:"articles"`
}

// Empty reports whether no article could be recovered.
func (r ExtractionResult) Empty() bool { return len(r.Articles) == 0 }
