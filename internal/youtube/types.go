package youtube

import "fmt"

// Wire types for the subset of the YouTube Data API v3 the bot consumes.

// APIError represents an error response from the YouTube Data API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube API error: %s (code: %d, status: %s)", e.Message, e.Code, e.Status)
}

type errorResponse struct {
	Error APIError `json:"error"`
}

type broadcastListResponse struct {
	Items []struct {
		Snippet struct {
			LiveChatID      string `json:"liveChatId"`
			ActualStartTime string `json:"actualStartTime"`
		} `json:"snippet"`
	} `json:"items"`
}

type chatMessageListResponse struct {
	NextPageToken         string            `json:"nextPageToken"`
	PollingIntervalMillis int64             `json:"pollingIntervalMillis"`
	Items                 []chatMessageItem `json:"items"`
}

type chatMessageItem struct {
	ID      string `json:"id"`
	Snippet struct {
		DisplayMessage string `json:"displayMessage"`
		PublishedAt    string `json:"publishedAt"`
	} `json:"snippet"`
	AuthorDetails struct {
		ChannelID       string `json:"channelId"`
		DisplayName     string `json:"displayName"`
		IsChatModerator bool   `json:"isChatModerator"`
		IsChatOwner     bool   `json:"isChatOwner"`
		IsChatSponsor   bool   `json:"isChatSponsor"`
	} `json:"authorDetails"`
}

type chatMessageInsertRequest struct {
	Snippet struct {
		Type               string `json:"type"`
		LiveChatID         string `json:"liveChatId"`
		TextMessageDetails struct {
			MessageText string `json:"messageText"`
		} `json:"textMessageDetails"`
	} `json:"snippet"`
}

func newChatMessageInsertRequest(liveChatID, text string) chatMessageInsertRequest {
	var req chatMessageInsertRequest
	req.Snippet.Type = "textMessageEvent"
	req.Snippet.LiveChatID = liveChatID
	req.Snippet.TextMessageDetails.MessageText = text
	return req
}
