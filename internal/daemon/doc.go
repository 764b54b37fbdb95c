// Package daemon hosts the notification service inside notidd.
// It turns service messages into popup frames, answers control requests,
// raises internal notifications and reloads the configuration when it changes.
package daemon
