package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dmx2osc/internal/dispatch"
	"dmx2osc/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var pahoLogOnce sync.Once

var errNotConnected = errors.New("mqtt broker not connected")

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	log       *logger.Log
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	pub       publisher
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	if cfgClient.ClientID == "" {
		cfgClient.ClientID = "dmx2osc-" + uuid.NewString()
	}
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &ClientMQTT{
		log:       log.With(logger.Fields{"module": "mqtt", "broker": cfgClient.Host + ":" + cfgClient.Port}),
		cfgClient: cfgClient,
	}
}

// Start begins connecting to the broker and returns without waiting for it.
// Until the connection is up Send fails like any other delivery error.
func (c *ClientMQTT) Start(ctx context.Context) error {
	if c.log.IsDebug() {
		pahoLogOnce.Do(func() {
			paho := c.log.Module("paho")
			mqtt.ERROR = paho
			mqtt.CRITICAL = paho
			mqtt.WARN = paho
		})
	}

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)
	c.pub = c.client

	// paho keeps retrying in the background, the token completes once the
	// broker accepts the connection or the client is stopped.
	token := c.client.Connect()
	go func() {
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				c.log.Errorf("failed to connect to broker: %v", err)
			}
		case <-ctx.Done():
		}
	}()

	c.log.Infof("connecting to %s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.Info("client connected to server")
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Errorf("server connect lost: %v", err)
}

// Topic returns the topic an OSC address is published on.
func Topic(prefix, address string) string {
	address = strings.TrimPrefix(address, "/")
	if prefix == "" {
		return address
	}
	return prefix + "/" + address
}

// Send publishes the instruction as JSON and waits for the broker until ctx
// is done.
func (c *ClientMQTT) Send(ctx context.Context, in dispatch.SendInstruction) error {
	if c.pub == nil {
		return errors.New("mqtt client not started")
	}
	if !c.pub.IsConnectionOpen() {
		return errNotConnected
	}

	msg, err := json.Marshal(Payload{
		Address: in.Address,
		Value:   in.Args[0],
		Label:   in.Label,
		Channel: in.Channel,
		Input:   in.Input,
	})
	if err != nil {
		return fmt.Errorf("mqtt payload: %w", err)
	}

	topic := Topic(c.cfgClient.TopicPrefix, in.Address)
	token := c.pub.Publish(topic, c.cfgClient.Qos, false, msg)
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("error publish topic %s: %w", topic, token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error publish topic %s: %w", topic, ctx.Err())
	}
}
