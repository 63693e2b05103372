// Package natsjs implements the messaging substrate on NATS JetStream.
//
// A topic is one stream whose subjects are <topic>.<index>, one subject per
// partition, with the partition count recorded in the stream metadata under
// "partitions". A tier binding is a single durable pull consumer named
// <group>-<tier> whose FilterSubjects are exactly the tier's partition
// subjects, so a worker never sees another tier's traffic.
//
// Publishes carry the message key in the Tier-Key header. Consumed records
// are acknowledged when the next poll starts or when the binding is closed.
//
// TableStore keeps each topic's tier table descriptor in a KV bucket so
// processes started with different layouts detect the mismatch at startup.
package natsjs
