/*
 * Copyright (c) 2021 IBM Corp and others.
 *
 * All rights reserved. This program and the accompanying materials
 * are made available under the terms of the Eclipse Public License v2.0
 * and Eclipse Distribution License v1.0 which accompany this distribution.
 *
 * The Eclipse Public License is available at
 *    https://www.eclipse.org/legal/epl-2.0/
 * and the Eclipse Distribution License is available at
 *   http://www.eclipse.org/org/documents/edl-v10.php.
 *
 * Contributors:
 *    Seth Hoenig
 *    Allan Stockdill-Mander
 *    Mike Robertson
 */

package bnnctl

import (
	"encoding/base64"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Job is one image waiting to be classified.
type Job struct {
	ID     string
	Source string
	Image  []byte
}

func NewJob(source string, image []byte) Job {
	return Job{ID: uuid.NewString(), Source: source, Image: image}
}

var f mqtt.MessageHandler = func(client mqtt.Client, msg mqtt.Message) {
	debugf("unexpected message on %s (%d bytes)", msg.Topic(), len(msg.Payload()))
}

func NewMQTTClient(cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.MQTTBroker).SetClientID("bnnctl-" + uuid.NewString())
	opts.SetKeepAlive(2 * time.Second)
	opts.SetDefaultPublishHandler(f)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		ERRORLogger.Printf("mqtt connection lost: %v", err)
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "mqtt connect %s", cfg.MQTTBroker)
	}
	INFOLogger.Printf("Connected to MQTT broker %s", cfg.MQTTBroker)
	return c, nil
}

func ImageTopic(prefix string) string  { return prefix + "/image" }
func ClearTopic(prefix string) string  { return prefix + "/clear" }
func StatusTopic(prefix string) string { return prefix + "/status" }
func ResultTopic(prefix string) string { return prefix + "/result" }
func BitmapTopic(prefix string) string { return prefix + "/bitmap" }

// SetupMQTTSubscriptionCallbacks turns image messages into jobs and clear
// messages into clear requests. Messages that arrive while the channels are
// full are dropped with a warning.
func SetupMQTTSubscriptionCallbacks(jobs chan<- Job, clears chan<- ClearMessage, cfg Config, client mqtt.Client) error {
	onImage := func(c mqtt.Client, msg mqtt.Message) {
		img, err := DecodeBitmap(msg.Payload(), cfg)
		if err != nil {
			WARNINGLogger.Printf("Discarding image from %s: %v", msg.Topic(), err)
			return
		}
		select {
		case jobs <- NewJob("mqtt:"+msg.Topic(), img):
		default:
			WARNINGLogger.Printf("Job queue full, discarding image from %s", msg.Topic())
		}
	}
	onClear := func(c mqtt.Client, msg mqtt.Message) {
		var m ClearMessage
		if len(msg.Payload()) > 0 {
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				m.Reason = string(msg.Payload())
			}
		}
		select {
		case clears <- m:
		default:
			WARNINGLogger.Printf("Clear request dropped, one is already pending")
		}
	}

	if token := client.Subscribe(ImageTopic(cfg.MQTTTopicPrefix), 1, onImage); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "mqtt subscribe image")
	}
	if token := client.Subscribe(ClearTopic(cfg.MQTTTopicPrefix), 1, onClear); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "mqtt subscribe clear")
	}
	return nil
}

// Publisher is the part of mqtt.Client the status and result reports need.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func publishImage(topic string, mat gocv.Mat, client Publisher) error {
	// Publish image (png/base64)
	imgBuf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return errors.Wrap(err, "encode preview")
	}
	defer imgBuf.Close()
	imgBytes := imgBuf.GetBytes()
	var b64bytes []byte = make([]byte, base64.StdEncoding.EncodedLen(len(imgBytes)))
	base64.StdEncoding.Encode(b64bytes, imgBytes)
	client.Publish(topic, 2, false, b64bytes)
	return nil
}

func publishJsonMsg(topic string, obj interface{}, qos byte, client Publisher) error {
	msg, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	client.Publish(topic, qos, false, msg)
	return nil
}

// Reporter publishes controller status and classification results.
type Reporter struct {
	client Publisher
	prefix string
	cfg    Config
}

func NewReporter(client Publisher, cfg Config) *Reporter {
	return &Reporter{client: client, prefix: cfg.MQTTTopicPrefix, cfg: cfg}
}

func (r *Reporter) PublishStatus(m StatusMessage) error {
	return publishJsonMsg(StatusTopic(r.prefix), m, 0, r.client)
}

func (r *Reporter) PublishResult(m ResultMessage) error {
	return publishJsonMsg(ResultTopic(r.prefix), m, 2, r.client)
}

// PublishBitmap publishes the image a job classified, as the accelerator
// saw it, for operators to eyeball.
func (r *Reporter) PublishBitmap(image []byte) error {
	mat, err := BitmapMat(image, r.cfg)
	if err != nil {
		return err
	}
	defer mat.Close()
	return publishImage(BitmapTopic(r.prefix), mat, r.client)
}
