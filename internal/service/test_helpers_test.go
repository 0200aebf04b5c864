package service

import (
	"encoding/json"
	"path"
)

func copyJSON(src, dest interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func globMatch(pattern, key string) bool {
	ok, _ := path.Match(pattern, key)
	return ok
}
