// Command racenotes is the CLI for the racing notes pipeline: it compresses
// and uploads media, stores notes with tags, and exports them.
package main
