package clientmqtt

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	TopicPrefix string // TopicPrefix - корень топиков.
	Qos         byte   // Qos - качество обслуживания.
}

// Payload is the JSON body published for every translated value.
type Payload struct {
	Address string `json:"address"`
	Value   int32  `json:"value"`
	Label   string `json:"label,omitempty"`
	Channel int    `json:"channel"`
	Input   int    `json:"input"`
}

// publisher is the part of mqtt.Client used for sending.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
}
