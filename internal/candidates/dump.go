package candidates

import (
	"encoding/json"
	"os"
)

// DumpToTmpFile writes the candidates as indented JSON into a new temporary
// file and returns its name.
func DumpToTmpFile(list []Candidate) (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return "", err
	}
	return file.Name(), nil
}
