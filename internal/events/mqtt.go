package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTClient is the subset of mqtt.Client used here.
type MQTTClient interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher writes events to <prefix>/<vehicle_id>/<maintenance_type>.
type MQTTPublisher struct {
	client MQTTClient
	prefix string
	qos    byte
}

// NewMQTTClient connects to broker with auto reconnect enabled.
func NewMQTTClient(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client MQTTClient, prefix string, qos byte) *MQTTPublisher {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = "fleet/maintenance"
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}
}

// Topic returns the topic an event is written to.
func (p *MQTTPublisher) Topic(e Event) string {
	return p.prefix + "/" + e.VehicleID + "/" + e.MaintenanceType
}

func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.payload()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	token := p.client.Publish(p.Topic(e), p.qos, false, body)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish: %w", ctx.Err())
	}
}

// Close disconnects the client.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
