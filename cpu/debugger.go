package cpu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"lr35902/mem"
)

type model struct {
	cpu     *CPU
	ram     *mem.RAM
	program []byte

	offset uint16 // load address and starting PC; also drawn by pageTable
	prevPC uint16
	lastOp byte
	cycles uint8
	error  error
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (m model) Init() tea.Cmd {
	m.ram.LoadAt(m.offset, m.program)
	m.cpu.SetPC(m.offset)
	return nil
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit

		case " ", "j":
			m.prevPC = m.cpu.PC()
			m.lastOp = m.ram.ReadByte(m.cpu.PC())
			cycles, err := m.cpu.Step()
			m.cycles = cycles
			if err != nil {
				m.error = err
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// renderPage renders a single page as a line. The current PC is highlighted.
func (m model) renderPage(start uint16) string {
	if start%16 != 0 {
		panic("start must be a multiple of 16")
	}
	bytes := m.ram.Bytes()
	s := fmt.Sprintf("%04x | ", start)
	for i := uint16(0); i < 16; i++ {
		b := bytes[start+i]
		if start+i == m.cpu.PC() {
			s += fmt.Sprintf("[%02x] ", b)
		} else {
			s += fmt.Sprintf(" %02x  ", b)
		}
	}
	return s
}

func (m model) status() string {
	var flags string
	for _, flag := range []bool{
		m.cpu.FlagZ(),
		m.cpu.FlagN(),
		m.cpu.FlagH(),
		m.cpu.FlagC(),
	} {
		if flag {
			flags += "/ "
		} else {
			flags += "  "
		}
	}
	return fmt.Sprintf(`
PC: %04x (%04x)  cycles: %d
 A: %02x  F: %02x
 B: %02x  C: %02x
 D: %02x  E: %02x
 H: %02x  L: %02x
SP: %04x
IME: %v  halted: %v
Z N H C
`,
		m.cpu.PC(), m.prevPC, m.cycles,
		m.cpu.A(), m.cpu.F(),
		m.cpu.B(), m.cpu.C(),
		m.cpu.D(), m.cpu.E(),
		m.cpu.H(), m.cpu.L(),
		m.cpu.SP(),
		m.cpu.IME(), m.cpu.Halted(),
	) + flags
}

func (m model) pageTable() string {
	header := "page | "
	for b := range 16 {
		header += fmt.Sprintf("  %01x  ", b)
	}

	pages := []string{header}

	offsets := []int{
		0, 16, 32, 48, 64,
		int(m.offset),
		int(m.offset + 16*1),
		int(m.offset + 16*2),
		int(m.offset + 16*3),
		int(m.offset + 16*4),
	}
	for _, i := range offsets {
		pages = append(pages, m.renderPage(uint16(i)))
	}
	return strings.Join(pages, "\n")
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.pageTable(),
			m.status(),
		),
		"",
		spew.Sdump(m.lastOp),
	)
}

// Debug loads program into ram at offset, then starts an interactive
// step-through TUI driven by the CPU's own Step.
func Debug(c *CPU, ram *mem.RAM, program []byte, offset uint16) {
	m, err := tea.NewProgram(model{
		cpu:     c,
		ram:     ram,
		program: program,
		offset:  offset,
	}).Run()
	if err != nil {
		panic(err)
	}
	x := m.(model)
	if x.error != nil {
		fmt.Println("Error:", x.error)
	}
}
