package fileloader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type FileType uint8

type LoadableSimple interface {
	Validate() error  // General validation (or none)
	Filepath() string // Relative file path to some base directory - can include subfolders
}

type Loadable[K comparable] interface {
	Id() K // Must be a unique identifier for the data
	LoadableSimple
}

const (
	FileTypeYaml FileType = iota
	FileTypeJson
)

var ErrInvalidFileType = errors.New(`invalid file type`)

var extensions = map[string]FileType{
	`.yaml`: FileTypeYaml,
	`.json`: FileTypeJson,
}

func fileTypeOf(path string) (FileType, bool) {
	t, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return t, ok
}

// LoadFlatFile reads one yaml or json file. The file must sit where its Filepath() says
// and must pass Validate().
func LoadFlatFile[T LoadableSimple](path string) (T, error) {

	var loaded T

	path = filepath.FromSlash(path)

	if info, err := os.Stat(path); err != nil {
		return loaded, errors.Wrap(err, `filepath: `+path)
	} else if info.IsDir() {
		return loaded, errors.New(`filepath: ` + path + ` is a directory`)
	}

	fileType, ok := fileTypeOf(path)
	if !ok {
		return loaded, errors.Wrap(ErrInvalidFileType, path)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return loaded, errors.Wrap(err, `filepath: `+path)
	}

	if fileType == FileTypeJson {
		err = json.Unmarshal(contents, &loaded)
	} else {
		err = yaml.Unmarshal(contents, &loaded)
	}
	if err != nil {
		return loaded, errors.Wrap(err, `filepath: `+path)
	}

	if want := filepath.FromSlash(loaded.Filepath()); !strings.HasSuffix(path, want) {
		return loaded, errors.New(fmt.Sprintf(`filesystem path "%s" did not end in Filepath() "%s" for type %T`, path, want, loaded))
	}

	if err := loaded.Validate(); err != nil {
		return loaded, errors.Wrap(err, `filepath: `+path)
	}

	return loaded, nil
}

// LoadAllFlatFiles loads every matching file under basePath, keyed by Id().
// With no fileTypes given, both yaml and json are loaded.
// A file that fails to load, or repeats an Id() already seen, is left out and its error
// is collected. Everything that did load is returned alongside the combined error.
// The map is nil only when basePath itself can't be walked.
func LoadAllFlatFiles[K comparable, T Loadable[K]](basePath string, fileTypes ...FileType) (map[K]T, error) {

	basePath = filepath.FromSlash(basePath)

	wanted := map[FileType]bool{FileTypeYaml: len(fileTypes) == 0, FileTypeJson: len(fileTypes) == 0}
	for _, t := range fileTypes {
		wanted[t] = true
	}

	loaded := map[K]T{}
	foundIn := map[K]string{}

	var result *multierror.Error

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if t, ok := fileTypeOf(path); !ok || !wanted[t] {
			return nil
		}

		item, err := LoadFlatFile[T](path)
		if err != nil {
			result = multierror.Append(result, err)
			return nil
		}

		id := item.Id()
		if first, ok := foundIn[id]; ok {
			result = multierror.Append(result, errors.New(fmt.Sprintf(`duplicate ID %v found in file %s and %s`, id, first, path)))
			return nil
		}

		foundIn[id] = path
		loaded[id] = item
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, `filepath: `+basePath)
	}

	return loaded, result.ErrorOrNil()
}
