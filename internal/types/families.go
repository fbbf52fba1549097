package types

import "fmt"

// FamilyID identifies the target microcontroller family of a UF2 file.
type FamilyID uint32

// Well-known family IDs from the UF2 family registry.
const (
	FamilySAMD21    FamilyID = 0x68ED2B88
	FamilySAMD51    FamilyID = 0x55114460
	FamilyNRF52     FamilyID = 0x1B57745F
	FamilyNRF52840  FamilyID = 0xADA52840
	FamilySTM32F0   FamilyID = 0x647824B6
	FamilySTM32F1   FamilyID = 0x5EE21072
	FamilySTM32F4   FamilyID = 0x57755A57
	FamilySTM32L4   FamilyID = 0x00FF6919
	FamilyESP32     FamilyID = 0x1C5F21B0
	FamilyESP32S2   FamilyID = 0xBFDD4EEE
	FamilyESP32S3   FamilyID = 0xC47E5767
	FamilyESP32C3   FamilyID = 0xD42BA06C
	FamilyRP2040    FamilyID = 0xE48BFF56
	FamilyRP2XXXAbs FamilyID = 0xE48BFF57
	FamilyRP2XXXDat FamilyID = 0xE48BFF58
	FamilyRP2350ARM FamilyID = 0xE48BFF59
	FamilyRP2350RV  FamilyID = 0xE48BFF5A
)

var familyNames = map[FamilyID]string{
	FamilySAMD21:    "SAMD21",
	FamilySAMD51:    "SAMD51",
	FamilyNRF52:     "NRF52",
	FamilyNRF52840:  "NRF52840",
	FamilySTM32F0:   "STM32F0",
	FamilySTM32F1:   "STM32F1",
	FamilySTM32F4:   "STM32F4",
	FamilySTM32L4:   "STM32L4",
	FamilyESP32:     "ESP32",
	FamilyESP32S2:   "ESP32S2",
	FamilyESP32S3:   "ESP32S3",
	FamilyESP32C3:   "ESP32C3",
	FamilyRP2040:    "RP2040",
	FamilyRP2XXXAbs: "RP2XXX_ABSOLUTE",
	FamilyRP2XXXDat: "RP2XXX_DATA",
	FamilyRP2350ARM: "RP2350_ARM_S",
	FamilyRP2350RV:  "RP2350_RISCV",
}

// Name returns the registered name of the family, or "" if unknown.
func (f FamilyID) Name() string {
	return familyNames[f]
}

// String returns the family name when known, the hex ID otherwise.
func (f FamilyID) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(f))
}
