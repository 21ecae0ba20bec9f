package model

import (
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedMessage 表示服务端消息不是JSON或者结构不符合协议
var ErrMalformedMessage = errors.New("malformed server message")

const serverMessageSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type":       {"type": "string"},
    "session_id": {"type": ["string", "null"]},
    "state":      {"type": ["string", "null"]},
    "text":       {"type": ["string", "null"]},
    "emotion":    {"type": ["string", "null"]}
  }
}`

var serverMessageSchema = jsonschema.MustCompileString("server_message.json", serverMessageSchemaJSON)
