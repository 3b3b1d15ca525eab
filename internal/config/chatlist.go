package config

import "fmt"

// ChatList is a set of Telegram chat ids. The TOML value may be a single
// integer or an array of integers, matching both config shapes:
//
//	send_to = 114514
//	send_to = [114514, 1919810]
type ChatList []int64

// UnmarshalTOML implements toml.Unmarshaler.
func (c *ChatList) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case int64:
		*c = ChatList{val}
	case []any:
		out := make(ChatList, 0, len(val))
		for _, item := range val {
			id, ok := item.(int64)
			if !ok {
				return fmt.Errorf("send_to: expected integer chat id, got %T", item)
			}
			out = append(out, id)
		}
		*c = out
	default:
		return fmt.Errorf("send_to: expected integer or array of integers, got %T", v)
	}
	return nil
}
