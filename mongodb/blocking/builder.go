package blocking

import (
	"context"

	"go.uber.org/zap"

	"github.com/WithSecureLabs/mongo-rs/mongodb"
)

// ClientBuilder assembles a blocking client. It forwards to the regular
// builder and wraps the result.
type ClientBuilder struct {
	inner *mongodb.ClientBuilder
}

// NewClientBuilder returns a builder pointed at the default URI.
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{inner: mongodb.NewClientBuilder()}
}

// URI sets the connection string.
func (b *ClientBuilder) URI(uri string) *ClientBuilder {
	b.inner.URI(uri)
	return b
}

// Database names the database the client operates on. Required.
func (b *ClientBuilder) Database(name string) *ClientBuilder {
	b.inner.Database(name)
	return b
}

// Auth sets the credentials used to authenticate.
func (b *ClientBuilder) Auth(username, password string) *ClientBuilder {
	b.inner.Auth(username, password)
	return b
}

// CA points at a PEM file of certificate authorities to trust.
func (b *ClientBuilder) CA(path string) *ClientBuilder {
	b.inner.CA(path)
	return b
}

// CertKey points at a PEM file holding the client certificate and key.
func (b *ClientBuilder) CertKey(path string) *ClientBuilder {
	b.inner.CertKey(path)
	return b
}

// Logger sets the logger operations report through.
func (b *ClientBuilder) Logger(logger *zap.Logger) *ClientBuilder {
	b.inner.Logger(logger)
	return b
}

// Build connects and starts the background goroutine.
func (b *ClientBuilder) Build() (*Client, error) {
	client, err := b.inner.Build(context.Background())
	if err != nil {
		return nil, err
	}
	return Wrap(client), nil
}
