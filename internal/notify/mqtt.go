package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"dryshift/config"
)

// publisher MQTT 发布能力，便于替换
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// pahoPublisher paho 客户端封装
type pahoPublisher struct {
	client mqtt.Client
}

func (p *pahoPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布到 %s 失败: %w", topic, err)
	}
	return nil
}

// MQTTNotifier 将通知发布到 <topic>/<recipient>
type MQTTNotifier struct {
	pub    publisher
	topic  string
	qos    byte
	logger *zap.Logger
}

// NewMQTTNotifier 连接 broker 并创建 MQTTNotifier
func NewMQTTNotifier(cfg *config.MQTTConfig, logger *zap.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT 连接断开", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("连接 MQTT broker 失败: %w", token.Error())
	}

	logger.Info("MQTT 连接成功", zap.String("broker", cfg.Broker))
	return newMQTTNotifier(&pahoPublisher{client: client}, cfg.Topic, cfg.QoS, logger), nil
}

func newMQTTNotifier(pub publisher, topic string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		pub:    pub,
		topic:  strings.TrimRight(topic, "/"),
		qos:    qos,
		logger: logger,
	}
}

func (n *MQTTNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}
	topic := n.topic + "/" + strconv.FormatInt(msg.Recipient, 10)
	return n.pub.Publish(topic, n.qos, false, payload)
}

// Close 断开 broker 连接
func (n *MQTTNotifier) Close() {
	if p, ok := n.pub.(*pahoPublisher); ok {
		p.client.Disconnect(250)
	}
}
