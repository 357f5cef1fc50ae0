package backend

import (
	"encoding/json"

	"github.com/fachebot/video-insight/internal/logger"
)

// ProcessRequest 视频处理请求
type ProcessRequest struct {
	URL string `json:"url"`
}

// Subtopic 子话题
type Subtopic struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Topic 话题及其子话题
type Topic struct {
	Title     string    `json:"title"`
	Subtopics Subtopics `json:"subtopics"`
}

// TranscriptSegment 带时间戳的转录片段
type TranscriptSegment struct {
	Time string `json:"time"`
	Text string `json:"text"`
}

// ProcessResponse 视频处理结果，所有字段均可缺省
type ProcessResponse struct {
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Topics     Topics     `json:"topics"`
	Transcript Transcript `json:"transcript"`
	Error      string     `json:"error,omitempty"`
}

// AskRequest 问答请求
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse 问答结果；后端会回显 question，这里忽略
type AskResponse struct {
	Answer *string `json:"answer"`
}

// Topics 话题列表；非数组内容视为无话题，不报错
type Topics []Topic

func (t *Topics) UnmarshalJSON(data []byte) error {
	var items []Topic
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warnf("[Backend] topics 格式异常，按空列表处理: %v", err)
		*t = nil
		return nil
	}
	*t = items
	return nil
}

// Subtopics 子话题列表；非数组内容视为无子话题
type Subtopics []Subtopic

func (s *Subtopics) UnmarshalJSON(data []byte) error {
	var items []Subtopic
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warnf("[Backend] subtopics 格式异常，按空列表处理: %v", err)
		*s = nil
		return nil
	}
	*s = items
	return nil
}

// Transcript 转录列表。nil 表示响应中没有转录，空切片表示转录为空
type Transcript []TranscriptSegment

func (t *Transcript) UnmarshalJSON(data []byte) error {
	var items []TranscriptSegment
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warnf("[Backend] transcript 格式异常，忽略: %v", err)
		*t = nil
		return nil
	}
	*t = items
	return nil
}
