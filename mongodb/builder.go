// Package mongodb wraps the driver behind the generated companion
// contracts: a builder that assembles connection options from a URI, a
// client bound to one database, and generic CRUD operations that accept
// any type carrying a Collection companion.
package mongodb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/tag"
	"go.uber.org/zap"

	"github.com/WithSecureLabs/mongo-rs/core"
)

// DefaultURI is used when the builder is given no connection string.
const DefaultURI = "mongodb://127.0.0.1:27017"

// ClientBuilder assembles a Client from a connection string plus optional
// credentials and TLS material. Methods chain; errors surface at Build.
type ClientBuilder struct {
	uri         string
	database    string
	username    string
	password    string
	caFile      string
	certKeyFile string
	logger      *zap.Logger
}

// NewClientBuilder returns a builder pointed at DefaultURI.
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{uri: DefaultURI}
}

// URI sets the connection string. Query parameters configure the
// connection; unknown parameters fail the build.
func (b *ClientBuilder) URI(uri string) *ClientBuilder {
	b.uri = uri
	return b
}

// Database names the database the client operates on. Required.
func (b *ClientBuilder) Database(name string) *ClientBuilder {
	b.database = name
	return b
}

// Auth sets the credentials used to authenticate.
func (b *ClientBuilder) Auth(username, password string) *ClientBuilder {
	b.username = username
	b.password = password
	return b
}

// CA points at a PEM file of certificate authorities to trust.
func (b *ClientBuilder) CA(path string) *ClientBuilder {
	b.caFile = path
	return b
}

// CertKey points at a PEM file holding the client certificate and key.
func (b *ClientBuilder) CertKey(path string) *ClientBuilder {
	b.certKeyFile = path
	return b
}

// Logger sets the logger operations report through.
func (b *ClientBuilder) Logger(logger *zap.Logger) *ClientBuilder {
	b.logger = logger
	return b
}

// connState accumulates settings that span several URI parameters before
// they collapse into single driver options.
type connState struct {
	opts *options.ClientOptions

	journal  *bool
	w        any
	wTimeout *time.Duration

	readPref     string
	maxStaleness *time.Duration
	tagSets      []tag.Set

	authSource    string
	authMechanism string
	authProps     map[string]string

	username    string
	password    string
	passwordSet bool

	useTLS      bool
	tlsInsecure bool
	caFile      string
	certKeyFile string
}

// uriOption binds one query parameter to the state it mutates. Unknown
// parameters are rejected rather than skipped.
type uriOption struct {
	key   string
	apply func(s *connState, value string) error
}

var uriOptions = []uriOption{
	{"appName", func(s *connState, v string) error {
		s.opts.SetAppName(v)
		return nil
	}},
	{"connectTimeoutMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetConnectTimeout(d)
		return nil
	}},
	{"compressors", func(s *connState, v string) error {
		s.opts.SetCompressors(strings.Split(v, ","))
		return nil
	}},
	{"zlibCompressionLevel", func(s *connState, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.opts.SetZlibLevel(n)
		return nil
	}},
	{"directConnection", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.opts.SetDirect(b)
		return nil
	}},
	{"heartbeatFrequencyMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetHeartbeatInterval(d)
		return nil
	}},
	{"journal", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.journal = &b
		return nil
	}},
	{"localThresholdMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetLocalThreshold(d)
		return nil
	}},
	{"maxIdleTimeMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetMaxConnIdleTime(d)
		return nil
	}},
	{"maxPoolSize", func(s *connState, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		s.opts.SetMaxPoolSize(n)
		return nil
	}},
	{"maxStalenessSeconds", func(s *connState, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		d := time.Duration(n) * time.Second
		s.maxStaleness = &d
		return nil
	}},
	{"minPoolSize", func(s *connState, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		s.opts.SetMinPoolSize(n)
		return nil
	}},
	{"readConcernLevel", func(s *connState, v string) error {
		rc, err := concernLevel(v)
		if err != nil {
			return err
		}
		s.opts.SetReadConcern(rc)
		return nil
	}},
	{"readPreference", func(s *connState, v string) error {
		s.readPref = v
		return nil
	}},
	{"readPreferenceTags", func(s *connState, v string) error {
		set, err := parseTagSet(v)
		if err != nil {
			return err
		}
		s.tagSets = append(s.tagSets, set)
		return nil
	}},
	{"replicaSet", func(s *connState, v string) error {
		s.opts.SetReplicaSet(v)
		return nil
	}},
	{"retryReads", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.opts.SetRetryReads(b)
		return nil
	}},
	{"retryWrites", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.opts.SetRetryWrites(b)
		return nil
	}},
	{"serverSelectionTimeoutMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetServerSelectionTimeout(d)
		return nil
	}},
	{"socketTimeoutMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.opts.SetSocketTimeout(d)
		return nil
	}},
	{"w", func(s *connState, v string) error {
		if n, err := strconv.Atoi(v); err == nil {
			s.w = n
		} else {
			s.w = v
		}
		return nil
	}},
	{"wTimeoutMS", func(s *connState, v string) error {
		d, err := millis(v)
		if err != nil {
			return err
		}
		s.wTimeout = &d
		return nil
	}},
	{"authSource", func(s *connState, v string) error {
		s.authSource = v
		return nil
	}},
	{"authMechanism", func(s *connState, v string) error {
		s.authMechanism = v
		return nil
	}},
	{"authMechanismProperties", func(s *connState, v string) error {
		props, err := parseProperties(v)
		if err != nil {
			return err
		}
		s.authProps = props
		return nil
	}},
	{"tls", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.useTLS = b
		return nil
	}},
	{"ssl", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.useTLS = b
		return nil
	}},
	{"tlsInsecure", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.tlsInsecure = b
		return nil
	}},
	{"tlsAllowInvalidCertificates", func(s *connState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.tlsInsecure = b
		return nil
	}},
	{"tlsCAFile", func(s *connState, v string) error {
		s.useTLS = true
		s.caFile = v
		return nil
	}},
	{"tlsCertificateKeyFile", func(s *connState, v string) error {
		s.useTLS = true
		s.certKeyFile = v
		return nil
	}},
}

func millis(v string) (time.Duration, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func concernLevel(v string) (*readconcern.ReadConcern, error) {
	switch v {
	case "local":
		return readconcern.Local(), nil
	case "majority":
		return readconcern.Majority(), nil
	case "linearizable":
		return readconcern.Linearizable(), nil
	case "available":
		return readconcern.Available(), nil
	case "snapshot":
		return readconcern.Snapshot(), nil
	default:
		return nil, fmt.Errorf("unknown read concern level %q", v)
	}
}

func preferenceMode(v string) (readpref.Mode, error) {
	switch strings.ToLower(v) {
	case "primary":
		return readpref.PrimaryMode, nil
	case "primarypreferred":
		return readpref.PrimaryPreferredMode, nil
	case "secondary":
		return readpref.SecondaryMode, nil
	case "secondarypreferred":
		return readpref.SecondaryPreferredMode, nil
	case "nearest":
		return readpref.NearestMode, nil
	default:
		return 0, fmt.Errorf("unknown read preference %q", v)
	}
}

// parseTagSet reads one "dc:ny,rack:1" style tag set.
func parseTagSet(v string) (tag.Set, error) {
	var set tag.Set
	for _, pair := range strings.Split(v, ",") {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed read preference tag %q", pair)
		}
		set = append(set, tag.Tag{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return set, nil
}

// parseProperties reads "SERVICE_NAME:mongodb,CANONICALIZE_HOST_NAME:true".
func parseProperties(v string) (map[string]string, error) {
	props := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed auth mechanism property %q", pair)
		}
		props[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return props, nil
}

// parseURI resolves the connection string into driver options.
func (b *ClientBuilder) parseURI() (*options.ClientOptions, error) {
	u, err := url.Parse(b.uri)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "mongodb" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("connection string %q has no host", b.uri)
	}
	state := &connState{opts: options.Client().SetHosts(strings.Split(u.Host, ","))}
	if u.User != nil {
		state.username = u.User.Username()
		state.password, state.passwordSet = u.User.Password()
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, err
	}
	for key, values := range query {
		spec, ok := lookupOption(key)
		if !ok {
			return nil, fmt.Errorf("unknown connection option %q", key)
		}
		for _, value := range values {
			if err := spec.apply(state, value); err != nil {
				return nil, fmt.Errorf("connection option %q: %w", key, err)
			}
		}
	}
	if err := b.finishWriteConcern(state); err != nil {
		return nil, err
	}
	if err := b.finishReadPreference(state); err != nil {
		return nil, err
	}
	if err := b.finishCredential(state); err != nil {
		return nil, err
	}
	if err := b.finishTLS(state); err != nil {
		return nil, err
	}
	return state.opts, nil
}

func lookupOption(key string) (uriOption, bool) {
	for _, spec := range uriOptions {
		if spec.key == key {
			return spec, true
		}
	}
	return uriOption{}, false
}

func (b *ClientBuilder) finishWriteConcern(s *connState) error {
	if s.journal == nil && s.w == nil && s.wTimeout == nil {
		return nil
	}
	wc := &writeconcern.WriteConcern{}
	if s.w != nil {
		wc.W = s.w
	}
	if s.journal != nil {
		wc.Journal = s.journal
	}
	if s.wTimeout != nil {
		wc.WTimeout = *s.wTimeout
	}
	s.opts.SetWriteConcern(wc)
	return nil
}

func (b *ClientBuilder) finishReadPreference(s *connState) error {
	if s.readPref == "" && s.maxStaleness == nil && len(s.tagSets) == 0 {
		return nil
	}
	mode := readpref.PrimaryMode
	if s.readPref != "" {
		m, err := preferenceMode(s.readPref)
		if err != nil {
			return err
		}
		mode = m
	}
	var prefOpts []readpref.Option
	if s.maxStaleness != nil {
		prefOpts = append(prefOpts, readpref.WithMaxStaleness(*s.maxStaleness))
	}
	if len(s.tagSets) > 0 {
		prefOpts = append(prefOpts, readpref.WithTagSets(s.tagSets...))
	}
	pref, err := readpref.New(mode, prefOpts...)
	if err != nil {
		return err
	}
	s.opts.SetReadPreference(pref)
	return nil
}

func (b *ClientBuilder) finishCredential(s *connState) error {
	// Builder setters win over connection-string userinfo.
	username := b.username
	password := b.password
	passwordSet := b.password != ""
	if username == "" {
		username = s.username
		password = s.password
		passwordSet = s.passwordSet
	}
	if username == "" && s.authSource == "" && s.authMechanism == "" {
		return nil
	}
	cred := options.Credential{
		AuthSource:              s.authSource,
		AuthMechanism:           s.authMechanism,
		AuthMechanismProperties: s.authProps,
		Username:                username,
	}
	if passwordSet {
		cred.Password = password
		cred.PasswordSet = true
	}
	s.opts.SetAuth(cred)
	return nil
}

func (b *ClientBuilder) finishTLS(s *connState) error {
	// Builder setters win over URI parameters.
	caFile := b.caFile
	if caFile == "" {
		caFile = s.caFile
	}
	certKeyFile := b.certKeyFile
	if certKeyFile == "" {
		certKeyFile = s.certKeyFile
	}
	if !s.useTLS && caFile == "" && certKeyFile == "" {
		return nil
	}
	cfg := &tls.Config{InsecureSkipVerify: s.tlsInsecure}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in %s", caFile)
		}
		cfg.RootCAs = pool
	}
	if certKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(certKeyFile, certKeyFile)
		if err != nil {
			return err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	s.opts.SetTLSConfig(cfg)
	return nil
}

// Build resolves the connection string and connects. The returned Client
// is bound to the configured database.
func (b *ClientBuilder) Build(ctx context.Context) (*Client, error) {
	if b.database == "" {
		return nil, core.BuilderError(fmt.Errorf("no database configured"))
	}
	opts, err := b.parseURI()
	if err != nil {
		return nil, core.BuilderError(err)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, core.MongodbError(err)
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return newClient(client, b.database, logger), nil
}
