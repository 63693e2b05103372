// Package kafka implements the messaging substrate on Apache Kafka with
// Sarama.
//
// The producer face is a sarama.Partitioner that delegates to the
// partitioner registered for each topic, so the tier choice happens inside
// the Sarama producer with the partition count the cluster reports. The
// consumer face opens one partition consumer per assigned partition; there
// is no consumer-group rebalancing. When offset commits are enabled a
// record's offset is marked when the next poll starts or the binding closes.
package kafka
