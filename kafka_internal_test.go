package kafka

import "time"

const defaultTestTimeout = 5 * time.Second

func testTopicConfig() TopicConfig {
	return TopicConfig{
		MessageTimeout: defaultTestTimeout,
		RequestTimeout: defaultTestTimeout,
	}
}
