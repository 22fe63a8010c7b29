package kafka

import (
	"sync"
	"testing"
)

// TestConcurrentDelegateAndPartitionCountUpdate exercises spec.md §5's
// multi-threaded ownership model under -race: one set of goroutines
// delegates partition 0 back and forth between two brokers, another
// resizes the partition count underneath them, and a third keeps reading
// the partition through LookupPartition, all against the same Topic.
func TestConcurrentDelegateAndPartitionCountUpdate(t *testing.T) {
	client := NewClient(ClientConfig{})
	topic, err := client.CreateOrFind("concurrent", testTopicConfig())
	if err != nil {
		t.Fatalf("CreateOrFind: %v", err)
	}
	defer topic.Drop()

	if _, err := client.PartitionCountUpdate("concurrent", 4); err != nil {
		t.Fatalf("PartitionCountUpdate: %v", err)
	}

	b1 := NewBroker(1, "host-1", 9092)
	defer b1.Drop()
	b2 := NewBroker(2, "host-2", 9092)
	defer b2.Drop()
	client.AddBroker(b1)
	client.AddBroker(b2)

	const goroutines = 8
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines * 3)

	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				broker := b1
				if (g+i)%2 == 0 {
					broker = b2
				}
				topic.Lock()
				if p, ok := topic.LookupPartition(0, false); ok {
					Delegate(p, broker)
					p.Drop()
				}
				topic.Unlock()
			}
		}(g)

		go func(g int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				count := int32(4)
				if (g+i)%2 == 0 {
					count = 8
				}
				client.PartitionCountUpdate("concurrent", count)
			}
		}(g)

		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				topic.RLock()
				p, ok := topic.LookupPartition(0, true)
				topic.RUnlock()
				if ok {
					p.Drop()
				}
			}
		}()
	}

	wg.Wait()
}
