// ABOUTME: Control protocol package
// ABOUTME: Message types and a websocket client for remote control of a player
// Package protocol implements the JSON control protocol of the adaptive music player.
//
// Every message is an envelope {"type": ..., "payload": ...}. A controller
// opens with client/hello, the player answers server/hello and then pushes
// server/state once per second. Commands such as track/play or
// condition/set are applied to the engine; failures come back as
// server/error.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928", Name: "console"})
//	err := client.Connect()
//	err = client.Send(protocol.TypeConditionSet, protocol.ConditionSet{ID: 100, Value: 1})
package protocol
