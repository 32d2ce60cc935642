/*
 * Mulberry - An OpenFlow shortest-path forwarding controller
 *
 * Copyright (C) 2016 Mulberry project contributors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"time"

	"github.com/dlintw/goconf"
	"github.com/pkg/errors"
)

type Config struct {
	conf *goconf.ConfigFile

	// Port is the TCP port the southbound listener accepts switch
	// connections on.
	Port     int
	LogLevel string
	// FloodGuardWindow suppresses refloods of identical discovery
	// broadcasts. Zero disables suppression.
	FloodGuardWindow time.Duration

	REST struct {
		Port    int
		TLSCert string
		TLSKey  string
	}
}

func NewConfig() *Config {
	return &Config{}
}

func (c *Config) Read() error {
	conf, err := goconf.ReadConfigFile(*configFile)
	if err != nil {
		return err
	}
	c.conf = conf

	if err := c.readDefaultConfig(conf); err != nil {
		return err
	}
	if err := c.readRESTConfig(conf); err != nil {
		return err
	}

	return nil
}

func (c *Config) RawConfig() *goconf.ConfigFile {
	return c.conf
}

func (c *Config) readDefaultConfig(conf *goconf.ConfigFile) error {
	var err error

	c.Port, err = conf.GetInt("default", "port")
	if err != nil || c.Port <= 0 || c.Port > 0xFFFF {
		return errors.New("invalid port config")
	}

	c.LogLevel, err = conf.GetString("default", "log_level")
	if err != nil || len(c.LogLevel) == 0 {
		return errors.New("empty log_level config")
	}

	// Optional. Zero keeps the guard disabled.
	window, err := conf.GetInt("default", "flood_guard_window")
	if err == nil {
		if window < 0 {
			return errors.New("negative flood_guard_window config")
		}
		c.FloodGuardWindow = time.Duration(window) * time.Millisecond
	}

	return nil
}

func (c *Config) readRESTConfig(conf *goconf.ConfigFile) error {
	var err error

	c.REST.Port, err = conf.GetInt("rest", "port")
	if err != nil || c.REST.Port <= 0 || c.REST.Port > 0xFFFF {
		return errors.New("invalid rest port config")
	}

	// TLS is optional, but the cert and key come as a pair.
	cert, certErr := conf.GetString("rest", "cert_file")
	key, keyErr := conf.GetString("rest", "key_file")
	if certErr == nil != (keyErr == nil) {
		return errors.New("cert_file and key_file should be set together")
	}
	if certErr == nil {
		c.REST.TLSCert = cert
		c.REST.TLSKey = key
	}

	return nil
}
