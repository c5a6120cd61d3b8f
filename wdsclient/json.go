package wdsclient

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func decodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
