package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"github.com/wowcore/wowcore/internal/core/debug"
	"github.com/wowcore/wowcore/internal/packets"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff [capture.pcap]",
	Short: "Decodes the auth traffic in a pcap capture",
	Args:  cobra.ExactArgs(1),
	Run:   SniffCommand,
}

var SniffPortFlag uint16

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func SniffCommand(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Println("error opening capture:", err)
		os.Exit(1)
	}
	defer f.Close()

	s := &sniffer{Writer: os.Stdout, Port: SniffPortFlag}
	if err := s.readCapture(f); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("decoded %d auth packets\n", s.count)
}

type sniffer struct {
	Writer io.Writer
	// Port the auth server listens on; it tells the two directions apart.
	Port uint16

	count int
}

func (s *sniffer) readCapture(r io.Reader) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("error reading capture: %w", err)
	}

	packetSource := gopacket.NewPacketSource(reader, reader.LinkType())
	for packet := range packetSource.Packets() {
		s.handlePacket(packet)
	}
	return nil
}

func (s *sniffer) handlePacket(packet gopacket.Packet) {
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil || packet.NetworkLayer() == nil {
		return
	}
	tcp := tcpLayer.(*layers.TCP)
	if len(tcp.Payload) == 0 {
		return
	}

	var dir debug.Direction
	switch s.Port {
	case uint16(tcp.DstPort):
		dir = debug.ClientToServer
	case uint16(tcp.SrcPort):
		dir = debug.ServerToClient
	default:
		return
	}
	s.count++

	flow := packet.NetworkLayer().NetworkFlow()
	data := tcp.Payload
	cmd := packets.Command(data[0])
	fmt.Fprintf(s.Writer, "%s %s:%d -> %s:%d %s %s (%d bytes)\n",
		packet.Metadata().Timestamp.Format("15:04:05.000"),
		flow.Src(), tcp.SrcPort, flow.Dst(), tcp.DstPort, dir, cmd, len(data))

	switch {
	case cmd == packets.LogonChallengeType && dir == debug.ClientToServer:
		s.dump(packets.LogonChallengeSchema.Parse(data))
	case cmd == packets.LogonChallengeType && len(data) == packets.LogonChallengeFailureSchema.MinSize():
		s.dump(packets.LogonChallengeFailureSchema.Parse(data))
	default:
		fmt.Fprint(s.Writer, spew.Sdump(data))
	}
}

func (s *sniffer) dump(v interface{}, err error) {
	if err != nil {
		fmt.Fprintf(s.Writer, "  malformed packet: %v\n", err)
		return
	}
	dumper.Fdump(s.Writer, v)
}
