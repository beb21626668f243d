package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/curtainlabs/curtainctl/internal/actuator"
	"github.com/curtainlabs/curtainctl/internal/link"
	"github.com/curtainlabs/curtainctl/internal/session"
)

// appConfig is the assembled runtime configuration. Every field has a
// compiled-in default; the TOML file only overrides what it defines.
type appConfig struct {
	Interface string
	Link      link.Config
	Session   session.Config
	Actuator  actuator.Config
}

func defaultAppConfig() appConfig {
	cfg := appConfig{
		Link:     link.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Actuator: actuator.DefaultConfig(),
	}
	cfg.Session.Address = "192.168.178.21:9000"
	return cfg
}

type fileConfig struct {
	UUID             string `toml:"uuid"`
	Server           string `toml:"server"`
	Interface        string `toml:"interface"`
	WifiSSID         string `toml:"wifi_ssid"`
	WifiPassword     string `toml:"wifi_password"`
	LinkRetryMS      int64  `toml:"link_retry_ms"`
	LinkQuiescenceMS int64  `toml:"link_quiescence_ms"`
	AttemptDelayMS   int64  `toml:"attempt_delay_ms"`
	ReconnectMS      int64  `toml:"reconnect_ms"`
	LineCapacity     int    `toml:"line_capacity"`

	ActuatorDriver string `toml:"actuator_driver"`

	ModbusProtocol   string `toml:"modbus_protocol"`
	ModbusEndpoint   string `toml:"modbus_endpoint"`
	ModbusSerialPort string `toml:"modbus_serial_port"`
	ModbusBaudRate   int    `toml:"modbus_baud_rate"`
	ModbusSlaveID    int    `toml:"modbus_slave_id"`
	ModbusCoil       int    `toml:"modbus_trigger_coil"`
	ModbusBusyReg    int    `toml:"modbus_busy_register"`

	SerialPort string `toml:"serial_port"`
	SerialBaud int    `toml:"serial_baud"`
	SerialUnit int    `toml:"serial_unit"`
}

// loadConfig reads the optional TOML override file. A missing file is
// not an error; the daemon runs on compiled-in defaults.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finishConfig(cfg)
		}
		return appConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("uuid") {
		cfg.Session.UUID = strings.TrimSpace(raw.UUID)
	}
	if meta.IsDefined("server") {
		cfg.Session.Address = strings.TrimSpace(raw.Server)
	}
	if meta.IsDefined("interface") {
		cfg.Interface = strings.TrimSpace(raw.Interface)
	}
	if meta.IsDefined("wifi_ssid") {
		cfg.Link.Credentials.SSID = raw.WifiSSID
	}
	if meta.IsDefined("wifi_password") {
		cfg.Link.Credentials.Password = raw.WifiPassword
	}
	if meta.IsDefined("link_retry_ms") {
		cfg.Link.RetryDelay = time.Duration(raw.LinkRetryMS) * time.Millisecond
	}
	if meta.IsDefined("link_quiescence_ms") {
		cfg.Link.Quiescence = time.Duration(raw.LinkQuiescenceMS) * time.Millisecond
	}
	if meta.IsDefined("attempt_delay_ms") {
		cfg.Session.AttemptDelay = time.Duration(raw.AttemptDelayMS) * time.Millisecond
	}
	if meta.IsDefined("reconnect_ms") {
		cfg.Session.ReconnectDelay = time.Duration(raw.ReconnectMS) * time.Millisecond
	}
	if meta.IsDefined("line_capacity") {
		cfg.Session.LineCapacity = raw.LineCapacity
	}

	if meta.IsDefined("actuator_driver") {
		cfg.Actuator.Driver = strings.TrimSpace(raw.ActuatorDriver)
	}
	if meta.IsDefined("modbus_protocol") {
		cfg.Actuator.Modbus.Protocol = strings.TrimSpace(raw.ModbusProtocol)
	}
	if meta.IsDefined("modbus_endpoint") {
		cfg.Actuator.Modbus.Endpoint = strings.TrimSpace(raw.ModbusEndpoint)
	}
	if meta.IsDefined("modbus_serial_port") {
		cfg.Actuator.Modbus.SerialPort = strings.TrimSpace(raw.ModbusSerialPort)
	}
	if meta.IsDefined("modbus_baud_rate") {
		cfg.Actuator.Modbus.BaudRate = raw.ModbusBaudRate
	}
	if meta.IsDefined("modbus_slave_id") {
		cfg.Actuator.Modbus.SlaveID = uint8(raw.ModbusSlaveID)
	}
	if meta.IsDefined("modbus_trigger_coil") {
		cfg.Actuator.Modbus.TriggerCoil = uint16(raw.ModbusCoil)
	}
	if meta.IsDefined("modbus_busy_register") {
		cfg.Actuator.Modbus.BusyRegister = uint16(raw.ModbusBusyReg)
	}
	if meta.IsDefined("serial_port") {
		cfg.Actuator.Serial.Port = strings.TrimSpace(raw.SerialPort)
	}
	if meta.IsDefined("serial_baud") {
		cfg.Actuator.Serial.Baud = raw.SerialBaud
	}
	if meta.IsDefined("serial_unit") {
		cfg.Actuator.Serial.UnitID = raw.SerialUnit
	}

	return finishConfig(cfg)
}

// finishConfig settles the identity token: a configured token must be
// a valid UUID, an absent one is generated for this process lifetime.
func finishConfig(cfg appConfig) (appConfig, error) {
	if cfg.Session.UUID == "" {
		cfg.Session.UUID = uuid.NewString()
		return cfg, nil
	}
	if _, err := uuid.Parse(cfg.Session.UUID); err != nil {
		return appConfig{}, fmt.Errorf("invalid uuid %q: %w", cfg.Session.UUID, err)
	}
	return cfg, nil
}
