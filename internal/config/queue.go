package config

// QueueConfig configures the RabbitMQ booking event pipeline.  An empty
// URL disables both the publisher and the audit consumer.
type QueueConfig struct {
    URL             string
    Queue           string
    ConsumerEnabled bool
    BookingLogPath  string
}

// LoadQueueConfig reads the broker settings.  RABBITMQ_URL and
// BOOKING_LOG_PATH are shared with Config.
func LoadQueueConfig() QueueConfig {
    return QueueConfig{
        URL:             envStr("RABBITMQ_URL", ""),
        Queue:           envStr("RABBITMQ_QUEUE", "session.events"),
        ConsumerEnabled: envBool("BOOKING_CONSUMER_ENABLED", true),
        BookingLogPath:  envStr("BOOKING_LOG_PATH", "logs/booking.log"),
    }
}

// Enabled reports whether a broker is configured.
func (q QueueConfig) Enabled() bool { return q.URL != "" }
