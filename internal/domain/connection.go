package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ResourceScheme prefixes every collection and document link.
const ResourceScheme = "pebble"

// RootCollection is the collection listed when a connection is opened.
const RootCollection = "/db"

type Connection struct {
	Name     string `yaml:"name"`
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
}

func (connection Connection) ID() string {
	return connection.Username + "-" + connection.Server
}

func (connection Connection) String() string {
	return fmt.Sprintf("%s (%s@%s)", connection.Name, connection.Username, connection.Server)
}

const maxConnectionField = 256

// Validate checks the parameters entered in the new connection dialog. The
// password may be empty.
func (connection Connection) Validate() error {
	return validation.ValidateStruct(&connection,
		validation.Field(&connection.Name, validation.Required, validation.Length(1, maxConnectionField)),
		validation.Field(&connection.Server, validation.Required, validation.Length(1, maxConnectionField), validation.By(serverURL)),
		validation.Field(&connection.Username, validation.Required, validation.Length(1, maxConnectionField)),
	)
}

func serverURL(value interface{}) error {
	server, _ := value.(string)
	parsed, err := url.Parse(server)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if parsed.Scheme == "" || (parsed.Host == "" && parsed.Path == "") {
		return errors.New("must include a scheme and a host or path")
	}
	return nil
}

// Resource is a listing entry returned by a server.
type Resource struct {
	Name       string
	Collection bool
	Size       int64
	MimeType   string
}

// BaseName is the last path segment of the resource name.
func (resource Resource) BaseName() string {
	return BaseName(resource.Name)
}

func BaseName(name string) string {
	trimmed := strings.TrimRight(name, "/")
	if index := strings.LastIndex(trimmed, "/"); index >= 0 {
		trimmed = trimmed[index+1:]
	}
	if trimmed == "" {
		return name
	}
	return trimmed
}

func Link(resourceName string) string {
	return ResourceScheme + ":" + resourceName
}

func ParseLink(link string) (string, bool) {
	prefix := ResourceScheme + ":"
	if !strings.HasPrefix(link, prefix) {
		return "", false
	}
	return strings.TrimPrefix(link, prefix), true
}

// JoinResource appends a child name to a collection path.
func JoinResource(collection, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return strings.TrimRight(collection, "/") + "/" + name
}
