package notify

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
)

type Content struct {
	Content string `json:"content"`
}

type Notification struct {
	MsgType string  `json:"msgtype"`
	Text    Content `json:"text"`
}

type Result struct {
	ErrCode int64  `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Webhook posts text notifications to a configured endpoint.
type Webhook struct {
	url string
}

func NewWebhook(url string) *Webhook {
	wh := &Webhook{
		url: url,
	}
	return wh
}

func (wh *Webhook) Notify(notification *Notification) (*Result, error) {
	requestJson, _ := json.Marshal(notification)
	req, err := http.NewRequest("POST", wh.url, strings.NewReader(string(requestJson)))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accepts", "application/json")
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("response status code: %d", resp.StatusCode)
	}
	respBody, _ := ioutil.ReadAll(resp.Body)
	result := new(Result)
	err = json.Unmarshal(respBody, result)
	if err != nil {
		return nil, err
	}
	if result.ErrCode != 0 {
		return nil, fmt.Errorf("code: %d, err: %s", result.ErrCode, result.ErrMsg)
	}
	return result, nil
}

// NotifyText is the common case: a plain text message.
func (wh *Webhook) NotifyText(format string, args ...interface{}) (*Result, error) {
	return wh.Notify(&Notification{
		MsgType: "text",
		Text:    Content{Content: fmt.Sprintf(format, args...)},
	})
}
