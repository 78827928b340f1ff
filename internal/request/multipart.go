package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// File is one file part of a multipart request
type File struct {
	Field   string
	Name    string
	Content []byte
}

// FileFromPath reads path into a File for field
func FileFromPath(field, path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Field: field, Name: filepath.Base(path), Content: data}, nil
}

// encodeMultipart writes the scalar fields of body and the files as multipart/form-data
func encodeMultipart(body any, files []File) (*bytes.Buffer, string, error) {
	fields, err := formFields(body)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	for _, f := range files {
		if f.Field == "" {
			return nil, "", fmt.Errorf("file %q has no field name", f.Name)
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// formFields flattens body through its JSON form. Nulls are skipped and nested
// values are sent as JSON text.
func formFields(body any) (map[string]string, error) {
	out := make(map[string]string)
	if body == nil {
		return out, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form body: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("form body must be an object: %w", err)
	}

	for key, value := range values {
		switch v := value.(type) {
		case nil:
		case string:
			out[key] = v
		case bool:
			out[key] = strconv.FormatBool(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			nested, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			out[key] = string(nested)
		}
	}
	return out, nil
}
