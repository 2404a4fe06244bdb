package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"relay_hub/internal/logger"
	"relay_hub/internal/models"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	qos            = 1
)

// Topic suffixes under the configured prefix.
const (
	TopicRefresh      = "refresh"
	TopicState        = "state"
	TopicAvailability = "device/availability"
	TopicHub          = "hub/state"
)

// Config holds MQTT publisher configuration.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher mirrors hub changes to an MQTT broker: the refresh token, the
// projected snapshot and device availability, all retained.
type Publisher struct {
	client pahomqtt.Client
	prefix string
	log    *logger.Logger
}

// NewPublisher connects to the broker. The hub topic carries a last will of
// "offline" so subscribers notice when the process dies.
func NewPublisher(cfg Config, log *logger.Logger) (*Publisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "relay-hub"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "relay_hub"
	}
	p := &Publisher{prefix: cfg.TopicPrefix, log: log.Named("mqtt")}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(p.topic(TopicHub), "offline", qos, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			p.info("mqtt_connected", "broker", cfg.Broker)
			p.publish(TopicHub, []byte("online"))
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			p.warn("mqtt_connection_lost", "err", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	p.client = client
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// ConnectRetry keeps dialing in the background; publishes queue meanwhile.
		p.warn("mqtt_connect_pending", "broker", cfg.Broker, "waited", connectTimeout)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return p, nil
}

// newWithClient wraps an already connected client.
func newWithClient(client pahomqtt.Client, prefix string, log *logger.Logger) *Publisher {
	return &Publisher{client: client, prefix: prefix, log: log}
}

// PublishRefresh sends the token as unix milliseconds.
func (p *Publisher) PublishRefresh(token time.Time) {
	p.publish(TopicRefresh, []byte(strconv.FormatInt(token.UnixMilli(), 10)))
}

// PublishState sends the projected snapshot in its flat JSON shape.
func (p *Publisher) PublishState(s models.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		p.warn("mqtt_state_encode_failed", "err", err)
		return
	}
	p.publish(TopicState, payload)
}

func (p *Publisher) PublishAvailability(online bool) {
	status := "offline"
	if online {
		status = "online"
	}
	p.publish(TopicAvailability, []byte(status))
}

// Close marks the hub offline and disconnects.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	token := p.client.Publish(p.topic(TopicHub), qos, true, []byte("offline"))
	token.WaitTimeout(publishTimeout)
	p.client.Disconnect(1000)
	p.info("mqtt_disconnected")
}

func (p *Publisher) topic(suffix string) string {
	return p.prefix + "/" + suffix
}

// publish does not block the caller; the delivery result is only logged.
func (p *Publisher) publish(suffix string, payload []byte) {
	if p.client == nil {
		return
	}
	topic := p.topic(suffix)
	token := p.client.Publish(topic, qos, true, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.warn("mqtt_publish_timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			p.warn("mqtt_publish_failed", "topic", topic, "err", err)
		}
	}()
}

func (p *Publisher) info(msg string, kv ...interface{}) {
	if p.log != nil {
		p.log.Infow(msg, kv...)
	}
}

func (p *Publisher) warn(msg string, kv ...interface{}) {
	if p.log != nil {
		p.log.Warnw(msg, kv...)
	}
}
