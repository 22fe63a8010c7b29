package kafka

import (
	"sync"

	"github.com/segmentio/toppar/sasl"
)

// ClientConfig configures a Client. Brokers is consumed by the broker
// subsystem (an external collaborator, spec.md §1); the client
// registry itself only needs SASLMechanism to snapshot the authentication
// mode that subsystem will use per connection.
type ClientConfig struct {
	Brokers []string

	// SASLMechanism selects the SASL authentication mode the broker
	// subsystem should use when dialing brokers on this client's behalf.
	// Nil means no SASL authentication.
	SASLMechanism sasl.Mechanism

	// Logger and ErrorLogger receive the registry's own debug and notice
	// channel lines (spec.md §6), distinct from the per-Topic loggers a
	// Topic's own config carries. Both default to a no-op logger.
	Logger      Logger
	ErrorLogger Logger
}

func (c *ClientConfig) setDefaults() {
	if c.Logger == nil {
		c.Logger = LoggerFunc(func(string, ...any) {})
	}
	if c.ErrorLogger == nil {
		c.ErrorLogger = LoggerFunc(func(string, ...any) {})
	}
}

// Client is spec.md's client registry (component D): the process-local
// table of live Topics, keyed by name, plus the brokers known by node id
// for delegation lookups.
type Client struct {
	config ClientConfig

	mu     sync.Mutex
	topics map[string]*Topic
	brokers map[int32]*Broker
}

// NewClient constructs an empty client registry.
func NewClient(config ClientConfig) *Client {
	config.setDefaults()
	return &Client{
		config:  config,
		topics:  make(map[string]*Topic),
		brokers: make(map[int32]*Broker),
	}
}

// CreateOrFind returns the Topic named name, creating it if it doesn't
// exist yet. A freshly created Topic's config is validated per spec.md
// §4.D: message_timeout_ms and request_timeout_ms must be positive and
// name must not be empty, or ErrInvalidArg is returned. Subsequent calls
// with the same name ignore config and return the existing handle with an
// incremented refcount.
//
// The returned Topic carries a reference the caller must Drop.
func (c *Client) CreateOrFind(name string, config TopicConfig) (*Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.topics[name]; ok {
		return t.Keep(), nil
	}

	if err := config.validate(name); err != nil {
		return nil, err
	}
	config.setDefaults()

	t := newTopic(c, name, config)
	c.topics[name] = t
	t.Keep()
	config.Logger.Printf("[TOPIC] new local topic: %s", name)
	return t, nil
}

// Find returns the Topic named name, if known, keeping a reference the
// caller must Drop.
func (c *Client) Find(name string) (*Topic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.topics[name]
	if !ok {
		return nil, false
	}
	return t.Keep(), true
}

// FindByProtocolString returns the Topic whose name matches the
// length-prefixed Kafka protocol string s byte-for-byte (spec.md §6):
// strings off the wire are not NUL-terminated and must never be compared
// with a NUL-terminated primitive.
func (c *Client) FindByProtocolString(s []byte) (*Topic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, t := range c.topics {
		if protocolStringEqual(s, name) {
			return t.Keep(), true
		}
	}
	return nil, false
}

func protocolStringEqual(wire []byte, name string) bool {
	if len(wire) != len(name) {
		return false
	}
	for i := 0; i < len(wire); i++ {
		if wire[i] != name[i] {
			return false
		}
	}
	return true
}

// unlink removes t from the registry. Called by Topic.Drop once a Topic's
// refcount reaches zero, and by Close for every registered topic.
func (c *Client) unlink(t *Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.topics[t.name] == t {
		delete(c.topics, t.name)
	}
}

// AddBroker registers a broker, keyed by its node id, so that
// FindBrokerByNodeID and the metadata applier can resolve leaders.
func (c *Client) AddBroker(b *Broker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brokers[b.nodeID] = b
}

// FindBrokerByNodeID is the broker_find_by_nodeid collaborator interface
// spec.md §6 names.
func (c *Client) FindBrokerByNodeID(id int32) (*Broker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.brokers[id]
	return b, ok
}

// Topics returns the names of every topic currently registered. Intended
// for diagnostics and tests.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	return names
}

// Close tears down every topic in the registry: it purges their
// partitions, unlinks them from the registry and drops the registry's own
// reference, per the teardown
// order in spec.md §9 ("stop metadata applier, stop broker I/O, call
// remove_all_partitions on each topic, drop registry"). Callers are
// responsible for having already stopped their own metadata and broker
// I/O threads before calling Close.
func (c *Client) Close() {
	c.mu.Lock()
	topics := make([]*Topic, 0, len(c.topics))
	for _, t := range c.topics {
		topics = append(topics, t)
	}
	c.mu.Unlock()

	for _, t := range topics {
		t.RemoveAllPartitions()
		c.unlink(t)
		t.Drop()
	}
}
