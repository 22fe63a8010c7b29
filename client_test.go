package kafka

import "testing"

func TestCreateOrFindCreatesOnce(t *testing.T) {
	client := NewClient(ClientConfig{})

	t1, err := client.CreateOrFind("orders", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}
	defer t1.Drop()

	t2, err := client.CreateOrFind("orders", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind (2nd call): %v", err)
	}
	defer t2.Drop()

	if t1 != t2 {
		t.Fatal("CreateOrFind returned two different Topics for the same name")
	}
}

func TestCreateOrFindLogsNewTopic(t *testing.T) {
	var logged []string
	cfg := testTopicConfig()
	cfg.Logger = LoggerFunc(func(msg string, args ...any) {
		logged = append(logged, msg)
	})

	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("orders", cfg)
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}
	defer topic.Drop()

	if len(logged) != 1 || logged[0] != "[TOPIC] new local topic: %s" {
		t.Fatalf("CreateOrFind log lines = %v, want a single [TOPIC] line", logged)
	}
}

func TestCreateOrFindInvalidConfig(t *testing.T) {
	client := NewClient(ClientConfig{})
	if _, err := client.CreateOrFind("bad", TopicConfig{}); err != ErrInvalidArg {
		t.Fatalf("CreateOrFind with zero-value config = %v, want ErrInvalidArg", err)
	}
}

func TestFindUnknownTopic(t *testing.T) {
	client := NewClient(ClientConfig{})
	if _, ok := client.Find("nope"); ok {
		t.Fatal("Find reported ok=true for an unregistered topic")
	}
}

func TestTopicDropUnlinksFromRegistry(t *testing.T) {
	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("ephemeral", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}

	if _, ok := client.Find("ephemeral"); !ok {
		t.Fatal("Find can't see a just-created topic")
	}

	topic.Drop() // drops CreateOrFind's reference

	if _, ok := client.Find("ephemeral"); ok {
		t.Fatal("topic still registered after its only reference was dropped")
	}
}

func TestTopicDropKeptAliveBySecondReference(t *testing.T) {
	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("shared", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}

	extra, ok := client.Find("shared")
	if !ok {
		t.Fatal("Find failed right after CreateOrFind")
	}

	topic.Drop()

	if _, ok := client.Find("shared"); !ok {
		t.Fatal("topic unlinked from registry while a second reference (extra) was still live")
	}

	extra.Drop()

	if _, ok := client.Find("shared"); ok {
		t.Fatal("topic still registered after every reference was dropped")
	}
}

func TestFindByProtocolString(t *testing.T) {
	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("wire-topic", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}
	defer topic.Drop()

	found, ok := client.FindByProtocolString([]byte("wire-topic"))
	if !ok {
		t.Fatal("FindByProtocolString did not find the topic")
	}
	defer found.Drop()
	if found != topic {
		t.Fatal("FindByProtocolString returned the wrong Topic")
	}

	if _, ok := client.FindByProtocolString([]byte("wire-topic-longer")); ok {
		t.Fatal("FindByProtocolString matched a longer wire string against a shorter name")
	}
}

func TestAddBrokerAndFindByNodeID(t *testing.T) {
	client := NewClient(ClientConfig{})
	b := NewBroker(1, "broker-1", 9092)
	client.AddBroker(b)

	found, ok := client.FindBrokerByNodeID(1)
	if !ok || found != b {
		t.Fatalf("FindBrokerByNodeID(1) = %v, %v; want the registered broker", found, ok)
	}

	if _, ok := client.FindBrokerByNodeID(2); ok {
		t.Fatal("FindBrokerByNodeID matched an unregistered node id")
	}
}

func TestClientTopicsListsAllRegistered(t *testing.T) {
	client := NewClient(ClientConfig{})
	a, _ := client.CreateOrFind("a", testTopicConfig())
	defer a.Drop()
	b, _ := client.CreateOrFind("b", testTopicConfig())
	defer b.Drop()

	names := client.Topics()
	if len(names) != 2 {
		t.Fatalf("Topics() = %v, want 2 entries", names)
	}
}

func TestClientClose(t *testing.T) {
	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("closing", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}
	topic.Drop()

	t2, err := client.CreateOrFind("closing", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind (after first Drop): %v", err)
	}
	if _, err := client.PartitionCountUpdate("closing", 2); err != nil {
		t.Fatalf("PartitionCountUpdate: %v", err)
	}

	client.Close()

	if t2.N() != 0 {
		t.Fatalf("N() = %d after Close, want 0 (partitions purged)", t2.N())
	}
	if _, ok := client.Find("closing"); ok {
		t.Fatal("topic still registered after Close")
	}
}
