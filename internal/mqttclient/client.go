// Package mqttclient publishes caption events to an MQTT broker for overlay
// renderers and downstream consumers that prefer a broker over SSE.
package mqttclient

import (
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type Client struct {
	conn      mqtt.Client
	connected atomic.Bool
	log       zerolog.Logger
}

type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect dials the broker. The client auto-reconnects. Captions published
// while disconnected are dropped rather than queued; a queued caption would
// be stale by the time the broker is back.
func Connect(opts Options) (*Client, error) {
	c := &Client{log: opts.Log}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Msg("mqtt connected")
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// Publish sends a payload at QoS 0. Fire-and-forget: the live caption feed
// never waits on broker acknowledgements.
func (c *Client) Publish(topic string, payload []byte) {
	if !c.connected.Load() {
		return
	}
	c.conn.Publish(topic, 0, false, payload)
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}
